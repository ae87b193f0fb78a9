package gitcli

import (
	"fmt"
	"strings"

	"github.com/roach88/hyperblame/internal/ir"
)

// showFormat prints id, parents, author and subject separated by NUL.
const showFormat = "%H%x00%P%x00%an%x00%s"

func parseShow(out string) (*ir.Change, error) {
	fields := strings.Split(strings.TrimRight(out, "\n"), "\x00")
	if len(fields) != 4 || fields[0] == "" {
		return nil, fmt.Errorf("unexpected show output %q", out)
	}
	return &ir.Change{
		ID:      fields[0],
		Parents: strings.Fields(fields[1]),
		Author:  fields[2],
		Summary: fields[3],
	}, nil
}
