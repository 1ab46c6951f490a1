// Package pipeline drives one crosstalk run end to end:
//
//	commentary  generate from the video (or load --from-json), optionally save
//	schedule    compute interrupt cutoffs
//	synthesis   one clip per event into a locked clips directory
//	compose     mix clips over the video's audio into a temporary WAV
//	mux         replace the video's audio with the mix
//
// Stages run sequentially under a single run id. Every collaborator is an
// interface in Dependencies so tests can drive the whole flow without
// network or ffmpeg.
package pipeline
