package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompt asks on w for the required fields that opts leaves empty, reading answers from r.
// Invalid numbers are asked again until the input ends.
func Prompt(r io.Reader, w io.Writer, opts *PlanOptions) error {
	sc := bufio.NewScanner(r)
	ask := func(label string) (string, error) {
		fmt.Fprintf(w, "%s: ", label)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	var err error
	if strings.TrimSpace(opts.Origin) == "" {
		if opts.Origin, err = ask("Departing from"); err != nil {
			return err
		}
	}
	if strings.TrimSpace(opts.Destination) == "" {
		if opts.Destination, err = ask("Destination"); err != nil {
			return err
		}
	}
	for opts.Duration <= 0 {
		answer, err := ask("Days")
		if err != nil {
			return err
		}
		n, convErr := strconv.Atoi(answer)
		if convErr != nil || n <= 0 {
			fmt.Fprintln(w, "Please enter a whole number of days.")
			continue
		}
		opts.Duration = n
	}
	return nil
}
