// Command mmusim is a contiguous memory allocation simulator.
package main

func main() {
	execute()
}
