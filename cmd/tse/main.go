// tse decides whether a thread state of a thread-transition diagram can be
// covered by an unbounded number of threads.
//
// Exit status is 0 when the final thread state is unreachable, 1 when it is
// reachable and 2 on error.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
