package version

// Version is the Major.Minor.Patch tag from GIT, supplied
// by the Makefile - else 'dev' as a default
var Version string = "dev"
