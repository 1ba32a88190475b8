package version

var (
	Version = "0.3"
	GitHash = "devXXX"
	BuildTS = "2026-01-01T00:00:00Z" // to be replaced at build time
	Agent   = "i2c_access/" + Version
)
