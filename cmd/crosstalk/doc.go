// Command crosstalk turns a fight video into a two-commentator narrated cut.
//
// The run command asks a video model for timestamped play-by-play and
// analyst lines, synthesizes each line with ElevenLabs, mixes the clips over
// the original audio (cutting a commentator off when the other interrupts),
// and muxes the mix back into the video. generate and plan expose the first
// steps on their own; config, cache and check manage the environment.
package main
