package main

// Overridden via ldflags during release builds.
var version = "dev"
