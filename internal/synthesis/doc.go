// Package synthesis turns commentary events into audio clips on disk, one
// clip per event, named event_NN_<commentator>.<ext> so clip i always belongs
// to event i.
//
// Synthesis runs sequentially unless Workers is above one, in which case a
// bounded errgroup pool is used. The first failure cancels outstanding work
// and Run returns no paths; clips already written stay on disk. An optional
// Cache short-circuits lines that were synthesized before with identical
// voice, model, format and settings.
package synthesis
