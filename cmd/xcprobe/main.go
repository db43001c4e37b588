// XCProbe discovers the business applications running on a host from
// evidence collected by running allowlisted commands locally, redacts
// secrets from everything it writes, and turns the result into a
// deterministic deployment pack plan.
//
// Usage:
//
//	# Collect evidence from this host into a sealed bundle labelled
//	# host.example.com
//	xcprobe collect --target host.example.com --out bundle.tar.gz
//
//	# Analyze a sealed bundle into a pack plan
//	xcprobe analyze --bundle bundle.tar.gz --out ./plan
//
//	# Verify a bundle's integrity without analyzing it
//	xcprobe bundle verify --bundle bundle.tar.gz
//
//	# Show version information
//	xcprobe version
package main

func main() {
	Execute()
}
