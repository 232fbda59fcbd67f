// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - File copying, backups and atomic writes
//   - Size-limited reads
//   - Directory creation
//   - Cover art resizing and format conversion
//
// # File Operations
//
//	// Keep a copy before tagging
//	backup, err := ioutils.Backup(ctx, "/podcast/episode.mp3")
//
//	// Write a chapter file atomically
//	err := ioutils.WriteFile(ctx, "/podcast/episode.chapters.txt", []byte("content"))
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/path/to/new/directory")
//
// # Image Processing
//
// The ImageService handles cover art manipulation:
//
//	svc := ioutils.NewImageService()
//
//	// Shrink to fit within 1400x1400, keep the format
//	cover, _ := svc.PrepareCover(ctx, imageData, ioutils.CoverOptions{MaxSize: 1400})
//
//	// Convert to JPEG
//	jpeg, _ := svc.ConvertToJPEG(ctx, pngData)
package ioutils
