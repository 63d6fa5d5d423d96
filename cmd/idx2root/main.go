// idx2root converts MNIST idx files to ROOT trees.
package main

func main() {
	Execute()
}
