// Command server runs the marketplace back office dashboard API and its tooling.
package main

func main() {
	Execute()
}
