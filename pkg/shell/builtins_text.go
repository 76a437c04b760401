package shell

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

const defaultLineCount = 10

// parseLineArgs accepts "-n N" or "-nN" anywhere among the file names.
func parseLineArgs(args []string, usage string) (int, []string, error) {
	n := defaultLineCount
	var files []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-n":
			if i+1 >= len(args) {
				return 0, nil, newError(KindUsage, "invalid N")
			}
			i++
			v, err := strconv.Atoi(args[i])
			if err != nil {
				return 0, nil, &Error{Kind: KindUsage, Msg: "invalid N", Err: err}
			}
			n = v
		case strings.HasPrefix(a, "-n") && len(a) > 2:
			v, err := strconv.Atoi(a[2:])
			if err != nil {
				return 0, nil, &Error{Kind: KindUsage, Msg: "invalid N", Err: err}
			}
			n = v
		default:
			files = append(files, a)
		}
	}
	if len(files) == 0 {
		return 0, nil, usageError(usage)
	}
	return n, files, nil
}

func runHead(env *Env, args []string) error {
	n, files, err := parseLineArgs(args, "head [-n N] <file>...")
	if err != nil {
		return err
	}
	for _, a := range files {
		if err := eachFileLines(env, a, n, headLines); err != nil {
			env.Report(err)
		}
	}
	return nil
}

func runTail(env *Env, args []string) error {
	n, files, err := parseLineArgs(args, "tail [-n N] <file>...")
	if err != nil {
		return err
	}
	for _, a := range files {
		if err := eachFileLines(env, a, n, tailLines); err != nil {
			env.Report(err)
		}
	}
	return nil
}

func eachFileLines(env *Env, arg string, n int, fn func(r *bufio.Reader, n int, w io.Writer) error) error {
	p, err := openRegular(env, arg)
	if err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	f, err := os.Open(p)
	if err != nil {
		return fsError(arg, err)
	}
	defer f.Close()
	if err := fn(bufio.NewReader(f), n, &env.out); err != nil {
		return fsError(arg, err)
	}
	return nil
}

// headLines copies the first n lines, keeping their line endings.
func headLines(r *bufio.Reader, n int, w io.Writer) error {
	for i := 0; i < n; i++ {
		line, err := r.ReadString('\n')
		if line != "" {
			if _, werr := io.WriteString(w, strings.ToValidUTF8(line, "�")); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
	return nil
}

// tailLines keeps at most n lines in memory while scanning the file.
func tailLines(r *bufio.Reader, n int, w io.Writer) error {
	ring := make([]string, 0, min(n, 1024))
	next := 0
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if len(ring) < n {
				ring = append(ring, line)
			} else {
				ring[next] = line
				next = (next + 1) % n
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
	}
	for _, part := range [][]string{ring[next:], ring[:next]} {
		for _, line := range part {
			if _, err := io.WriteString(w, strings.ToValidUTF8(line, "�")); err != nil {
				return err
			}
		}
	}
	return nil
}
