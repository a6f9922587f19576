package build

// Version info - set at build time with -ldflags, e.g.
// -ldflags "-X github.com/drummonds/goPDFView/internal/build.Version=v0.3.0"
var (
	Version   = "dev"
	BuildDate = ""
)
