// Package config builds the immutable RunConfig that drives every.
//
// # Sources
//
// Configuration comes from two places, applied in this order:
//
//  1. The defaults file, ~/.config/every/config.toml or the path given with
//     --config. A missing file is not an error; built-in defaults are used.
//  2. The command line. Flags override the defaults file.
//
// # Command Line
//
// Short flags follow getopt conventions and may be combined (-tb). Parsing
// stops at the first positional argument, so in
//
//	every -n 5 ls -l /tmp
//
// the -l belongs to ls. The remaining arguments are joined with single spaces
// and handed to the shell as one string.
//
//   - -n <seconds>: interval; a non-numeric value reads as 0
//   - -t: no header
//   - -b: beep when the command fails
//   - -e: exit with the command's status when it fails
//   - -h: usage, exit 1
//   - -v: version, exit 0
//   - --verbose: debug logging on stderr
//   - --config <path>: alternate defaults file
//
// Parse reports -h and -v as ErrHelp and ErrVersion, and a bad command line
// as *UsageError. Mapping those to exit codes is left to the caller.
//
// # TOML Format
//
//	interval = 2
//	shell = "/bin/sh"
//	no_title = false
//	beep = false
//	errexit = false
//	bold_title = false
//	fixed_geometry = false
//
// Every key is optional. A negative interval is treated as 0. Boolean keys
// can only be switched on from the command line, never off.
package config
