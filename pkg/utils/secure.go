// =============================================================================
// CSV Reconciler - Secure File Names
// =============================================================================
//
// This module reduces client-supplied file names to flat ASCII names that
// are safe to join onto a server directory.
//
// =============================================================================

package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

	windowsDeviceFiles = map[string]bool{
		"CON": true, "PRN": true, "AUX": true, "NUL": true,
		"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
		"COM6": true, "COM7": true, "COM8": true, "COM9": true,
		"LPT1": true, "LPT2": true, "LPT3": true,
	}
)

// SecureFilename reduces a client-supplied file name to a safe, flat ASCII
// name. The result may be empty.
//
//	"My cool movie.mov"        -> "My_cool_movie.mov"
//	"../../../etc/passwd"      -> "etc_passwd"
//	"i contain cool ümläuts.txt" -> "i_contain_cool_umlauts.txt"
func SecureFilename(name string) string {
	// Decompose so accented letters keep their ASCII base, then drop the rest.
	decomposed := norm.NFKD.String(name)
	var ascii strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			ascii.WriteRune(r)
		}
	}
	name = ascii.String()

	for _, sep := range []string{"/", "\\"} {
		name = strings.ReplaceAll(name, sep, " ")
	}

	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name != "" {
		base := strings.ToUpper(strings.SplitN(name, ".", 2)[0])
		if windowsDeviceFiles[base] {
			name = "_" + name
		}
	}

	return name
}
