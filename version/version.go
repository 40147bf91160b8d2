package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = NLSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// NLSemVer is the current version of nearlight.
	// It's the Semantic Version of the software.
	NLSemVer = "0.1.0"

	// ValidatorStakeVersion is the newest validator stake layout the client
	// decodes.
	ValidatorStakeVersion = "V1"
)
