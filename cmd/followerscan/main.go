// Package main provides the entry point for the followerscan CLI.
//
// followerscan walks the follower list of a signed-in Strava athlete,
// fetches each follower's profile and flags the ones that look like spam
// or bot accounts.
//
// Usage:
//
//	followerscan scan
//	followerscan batch <profile-url>...
//	followerscan batch --notifications
//
// See --help for all available options.
package main

func main() {
	Execute()
}
