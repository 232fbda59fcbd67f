// Package http provides the HTTP client used to check for updates and to
// fetch cover art from URLs.
//
// The Client in this package handles:
//   - User-Agent headers
//   - File downloads with progress tracking
//   - Timeout handling
//
// # Basic Usage
//
//	client := http.NewClient("Ultraschall/5.1", 30*time.Second)
//
//	// Fetch a small text document
//	version, err := client.GetString(ctx, "https://ultraschall.io/ultraschall_release.txt")
//
//	// Download file with progress callback
//	client.DownloadFile(ctx, coverURL, "/tmp/cover.jpg", func(written, total int64) {
//	    fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
