package shell

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/cases"

	"github.com/sameehj/boxsh/pkg/sandbox"
)

func runLs(env *Env, args []string) error {
	const usage = "ls [-a] [path]"
	showAll := false
	var target string
	targets := 0
	for _, a := range args {
		switch {
		case a == "-a":
			showAll = true
		case len(a) > 1 && strings.HasPrefix(a, "-"):
			return usageError(usage)
		default:
			target = a
			targets++
		}
	}
	if targets > 1 {
		return usageError(usage)
	}

	p, err := env.Resolve(target)
	if err != nil {
		return err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Error{Kind: KindNotFound, Msg: "path not found: " + target, Err: err}
		}
		return fsError(target, err)
	}
	if !info.IsDir() {
		env.Println(filepath.Base(p))
		return nil
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return fsError(target, err)
	}

	type item struct {
		name string
		key  string
		dir  bool
	}
	fold := cases.Fold()
	items := make([]item, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !showAll && strings.HasPrefix(name, ".") {
			continue
		}
		dir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			if st, err := os.Stat(filepath.Join(p, name)); err == nil {
				dir = st.IsDir()
			}
		}
		items = append(items, item{name: name, key: fold.String(name), dir: dir})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].dir != items[j].dir {
			return items[i].dir
		}
		if items[i].key != items[j].key {
			return items[i].key < items[j].key
		}
		return items[i].name < items[j].name
	})

	for _, it := range items {
		if it.dir {
			env.Println(it.name + "/")
			continue
		}
		env.Println(it.name)
	}
	return nil
}

func runCd(env *Env, args []string) error {
	if len(args) > 1 {
		return usageError("cd [path]")
	}
	target := env.Root()
	name := "/"
	if len(args) == 1 {
		p, err := env.Resolve(args[0])
		if err != nil {
			return err
		}
		target, name = p, args[0]
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Error{Kind: KindNotFound, Msg: "no such directory: " + name, Err: err}
		}
		return fsError(name, err)
	}
	if !info.IsDir() {
		return newError(KindWrongType, "not a directory: %s", name)
	}
	canonical := sandbox.Canonicalize(target)
	if !sandbox.Within(env.Root(), canonical) {
		return newError(KindConfinement, "access outside sandbox root is blocked: %s", name)
	}
	env.setCwd(canonical)
	return nil
}

func runMkdir(env *Env, args []string) error {
	if len(args) == 0 {
		return usageError("mkdir <dir>...")
	}
	for _, a := range args {
		p, err := env.Resolve(a)
		if err != nil {
			env.Report(err)
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			env.Report(fsError(a, err))
		}
	}
	return nil
}

func runRm(env *Env, args []string) error {
	recursive := false
	var paths []string
	for _, a := range args {
		if a == "-r" {
			recursive = true
			continue
		}
		paths = append(paths, a)
	}
	if len(paths) == 0 {
		return usageError("rm [-r] <path>...")
	}

	for _, a := range paths {
		p, err := env.Resolve(a)
		if err != nil {
			env.Report(err)
			continue
		}
		info, err := os.Lstat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				env.Report(&Error{Kind: KindNotFound, Msg: "not found: " + a, Err: err})
			} else {
				env.Report(fsError(a, err))
			}
			continue
		}
		if p == env.Root() {
			env.Report(newError(KindConfinement, "refusing to remove the sandbox root"))
			continue
		}
		if !info.IsDir() {
			if err := os.Remove(p); err != nil {
				env.Report(fsError(a, err))
			}
			continue
		}
		if !recursive {
			env.Report(newError(KindWrongType, "is a directory (use -r): %s", a))
			continue
		}
		if !env.Confirm("rm -r " + env.Display(p)) {
			env.Println("aborted")
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			env.Report(fsError(a, err))
		}
	}
	resetCwdIfGone(env)
	return nil
}

func runTouch(env *Env, args []string) error {
	if len(args) == 0 {
		return usageError("touch <file>...")
	}
	for _, a := range args {
		p, err := env.Resolve(a)
		if err != nil {
			env.Report(err)
			continue
		}
		if err := touch(p); err != nil {
			env.Report(fsError(a, err))
		}
	}
	return nil
}

func touch(p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	now := time.Now()
	return os.Chtimes(p, now, now)
}

func runCat(env *Env, args []string) error {
	if len(args) == 0 {
		return usageError("cat <file>...")
	}
	for _, a := range args {
		p, err := openRegular(env, a)
		if err != nil {
			env.Report(err)
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			env.Report(fsError(a, err))
			continue
		}
		env.out.WriteString(strings.ToValidUTF8(string(data), "�"))
	}
	return nil
}

// openRegular resolves a file argument and checks it names a regular file.
func openRegular(env *Env, arg string) (string, error) {
	p, err := env.Resolve(arg)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &Error{Kind: KindNotFound, Msg: "no such file: " + arg, Err: err}
		}
		return "", fsError(arg, err)
	}
	if info.IsDir() {
		return "", newError(KindWrongType, "is a directory: %s", arg)
	}
	return p, nil
}

// twoPaths resolves the src and dst of cp and mv. When dst is an existing
// directory the result points inside it under src's base name.
func twoPaths(env *Env, args []string, usage string) (src, dst string, srcInfo fs.FileInfo, err error) {
	if len(args) != 2 {
		return "", "", nil, usageError(usage)
	}
	if src, err = env.Resolve(args[0]); err != nil {
		return "", "", nil, err
	}
	if dst, err = env.Resolve(args[1]); err != nil {
		return "", "", nil, err
	}
	srcInfo, err = os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", nil, &Error{Kind: KindNotFound, Msg: "source not found: " + args[0], Err: err}
		}
		return "", "", nil, fsError(args[0], err)
	}
	if info, statErr := os.Stat(dst); statErr == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	if !env.Contains(dst) {
		return "", "", nil, newError(KindConfinement, "access outside sandbox root is blocked: %s", args[1])
	}
	if src == dst {
		return "", "", nil, newError(KindUsage, "%s and %s are the same file", args[0], args[1])
	}
	if srcInfo.IsDir() && sandbox.Within(src, dst) {
		return "", "", nil, newError(KindUsage, "cannot copy or move a directory into itself: %s", args[0])
	}
	return src, dst, srcInfo, nil
}

func runCp(env *Env, args []string) error {
	src, dst, info, err := twoPaths(env, args, "cp <src> <dst>")
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyTree(env, src, dst)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(info, dstInfo) {
		return newError(KindUsage, "%s and %s are the same file", args[0], args[1])
	}
	if err := copyFile(src, dst, info); err != nil {
		return fsError(args[1], err)
	}
	return nil
}

// copyTree merges src into dst. Symlinks are recreated, not followed.
func copyTree(env *Env, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fsError(env.Display(path), err)
		}
		if err := env.Context().Err(); err != nil {
			return &Error{Kind: KindIO, Msg: "cp interrupted", Err: err}
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fsError(env.Display(path), err)
		}
		target := filepath.Join(dst, rel)
		if !env.Contains(target) {
			return newError(KindConfinement, "access outside sandbox root is blocked: %s", env.Display(target))
		}

		info, err := d.Info()
		if err != nil {
			return fsError(env.Display(path), err)
		}
		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return fsError(env.Display(target), err)
			}
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fsError(env.Display(path), err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(link, target); err != nil {
				return fsError(env.Display(target), err)
			}
		case d.Type().IsRegular():
			if err := copyFile(path, target, info); err != nil {
				return fsError(env.Display(target), err)
			}
		default:
			// Devices, sockets and pipes are skipped.
		}
		return nil
	})
}

// copyFile copies contents, permissions and modification time.
func copyFile(src, dst string, info fs.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}

func runMv(env *Env, args []string) error {
	src, dst, info, err := twoPaths(env, args, "mv <src> <dst>")
	if err != nil {
		return err
	}
	if src == env.Root() {
		return newError(KindConfinement, "refusing to move the sandbox root")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fsError(args[1], err)
	}

	err = os.Rename(src, dst)
	if errors.Is(err, syscall.EXDEV) {
		err = moveAcross(env, src, dst, info)
	}
	if err != nil {
		return fsError(args[1], err)
	}
	resetCwdIfGone(env)
	return nil
}

// moveAcross handles renames between filesystems by copying then removing.
func moveAcross(env *Env, src, dst string, info fs.FileInfo) error {
	if info.IsDir() {
		if err := copyTree(env, src, dst); err != nil {
			return err
		}
	} else if err := copyFile(src, dst, info); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// resetCwdIfGone moves the session back to the root when its working
// directory was removed or moved away.
func resetCwdIfGone(env *Env) {
	if info, err := os.Stat(env.Cwd()); err == nil && info.IsDir() {
		return
	}
	env.setCwd(env.Root())
}
