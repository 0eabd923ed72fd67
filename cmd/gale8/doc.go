// Command gale8 detects the shipping forecast in broadcast recordings,
// maintains the catalog of usable recordings and assembles them into a
// continuous stream with captions.
//
// Subcommands:
//
//	detect     find trigger keywords in recordings and publish cue files
//	catalog    add, rebuild and inspect the recording catalog
//	assemble   build and publish the stream and its captions
//	audit      report short recordings and recordings without cues
//	doctor     check ffmpeg, the speech model, directories and storage
//	config     create, validate and print the configuration
package main
