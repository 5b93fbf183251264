package archive

import "strings"

// ArchiveExt is the plain-archive filename suffix.
const ArchiveExt = ".BRa"

// SFXExt is the POSIX self-extracting filename suffix; Windows hosts
// use SFXExtWindows instead (spec.md §6).
const SFXExt = ".brx"

// SFXExtWindows is the self-extracting filename suffix on Windows
// hosts.
const SFXExtWindows = ".exe"

// AdjustArchiveName appends ArchiveExt to path unless it is already
// present, grounded on original_source's filename_archive_adjust.
func AdjustArchiveName(path string) string {
	if strings.HasSuffix(path, ArchiveExt) {
		return path
	}
	return path + ArchiveExt
}

// AdjustSFXName rewrites path to carry sfxExt, swapping out a prior
// SFX suffix if one is already present, grounded on original_source's
// filename_sfx_adjust.
func AdjustSFXName(path, sfxExt string) string {
	if strings.HasSuffix(path, SFXExt) {
		path = strings.TrimSuffix(path, SFXExt)
	} else if strings.HasSuffix(path, SFXExtWindows) {
		path = strings.TrimSuffix(path, SFXExtWindows)
	}
	if !strings.HasSuffix(path, ArchiveExt) {
		path += ArchiveExt
	}
	return path + sfxExt
}
