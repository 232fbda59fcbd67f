// Package model defines the core data structures shared by the tagging,
// chapter and update-check packages.
//
// # Marker
//
// Marker is a named position on the timeline, in seconds:
//
//	markers := []model.Marker{
//	    {Name: "Intro", Position: 0},
//	    {Name: "Part 2", Position: 30},
//	}
//
// Markers can be read from an mp4chaps style text file:
//
//	f, _ := os.Open("episode.chapters.txt")
//	markers, err := model.ParseMarkers(f)
//
// # Properties
//
// Properties holds the six text fields written to an MP3 file. The host
// passes them as a newline separated string:
//
//	props, err := model.ParseProperties("Title\nArtist\nAlbum\n2024\nPodcast\nComment")
//	fmt.Println(props.Title) // Title
package model
