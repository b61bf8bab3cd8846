package ttd_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/ajalab/tse/ttd"
)

func ExampleParse() {
	src := `# S L
1 3
0 0 -> 0 1  # acquire
0 1 -> 0 2
0 0 +> 0 2
`
	g, err := ttd.Parse(strings.NewReader(src), ttd.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(g.NumTransitions(), g.HasSpawn())
	if err := g.WriteAdjacency(os.Stdout); err != nil {
		fmt.Println(err)
	}
	// Output:
	// 3 true
	// 1 3
	// (0|0) -> (0|1)
	// (0|0) +> (0|2)
	// (0|1) -> (0|2)
}
