// Package mux replaces a video's audio with the composite commentary track
// using ffmpeg. The video stream is copied untouched and the audio is
// re-encoded to AAC; output is written beside the destination and renamed
// into place only on success.
package mux
