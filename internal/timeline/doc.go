// Package timeline composes the commentary audio track: each synthesized
// clip is placed at its event's start time, clipped at its interrupt cutoff
// (or dropped when too little of it would survive), and summed with the
// video's own audio as a quieter background bed.
//
// Plan computes placements without decoding audio, which is what
// `crosstalk plan` prints. Compose decodes, mixes and writes a temporary WAV
// into the work directory; the caller owns the returned Track and must Close
// it to remove the file.
package timeline
