package shell

import (
	"errors"
	"time"

	"github.com/sameehj/boxsh/pkg/system"
)

func runPs(env *Env, _ []string) error {
	out, err := system.Processes(env.Context(), env.session.executor)
	if err != nil {
		return &Error{Kind: KindIO, Msg: "ps failed: " + err.Error(), Err: err}
	}
	env.out.WriteString(out)
	return nil
}

func runSysmon(env *Env, _ []string) error {
	env.Println(system.SnapshotHeader(time.Now()))
	if load, err := system.LoadAverage(); err == nil {
		env.Println(load.String())
	}
	lines, err := system.Memory(env.Context(), env.session.executor)
	if err != nil {
		if errors.Is(err, system.ErrUnavailable) {
			return nil
		}
		return &Error{Kind: KindIO, Msg: "mem info failed: " + err.Error(), Err: err}
	}
	for _, line := range lines {
		env.Println(line)
	}
	return nil
}

func runDf(env *Env, _ []string) error {
	usage, err := system.DiskUsage(env.Root())
	if err != nil {
		return &Error{Kind: KindIO, Msg: "df failed: " + err.Error(), Err: err}
	}
	env.Printf("Filesystem (sandbox root): %s\n", usage)
	return nil
}
