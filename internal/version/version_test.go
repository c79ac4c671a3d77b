package version

import "testing"

func TestVersionHasDefault(t *testing.T) {
	if Version == "" {
		t.Fatal("Version must carry a default value")
	}
}

func TestVersionStringIncludesOptionalFields(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "1.2.3"
	GitCommit = ""
	BuildDate = ""
	if got := VersionString(); got != "1.2.3" {
		t.Fatalf("VersionString() = %q, want bare version when commit/date unset", got)
	}

	GitCommit = "abc123"
	if got := VersionString(); got != "1.2.3 (abc123)" {
		t.Fatalf("VersionString() = %q, want version with commit", got)
	}

	BuildDate = "2024-01-15T10:30:00Z"
	if got := VersionString(); got != "1.2.3 (abc123) built 2024-01-15T10:30:00Z" {
		t.Fatalf("VersionString() = %q, want version with commit and date", got)
	}
}
