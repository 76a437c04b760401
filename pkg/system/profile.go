package system

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
)

// Profile is the host summary printed by doctor.
type Profile struct {
	OS     string
	Arch   string
	Distro string
	Kernel string
	Shell  string
	// Tools records which host utilities the shell delegates to are on PATH.
	Tools map[string]bool
}

func Detect() (*Profile, error) {
	profile := &Profile{
		OS:     runtime.GOOS,
		Arch:   runtime.GOARCH,
		Kernel: kernelRelease(),
		Shell:  os.Getenv("SHELL"),
		Tools:  make(map[string]bool),
	}
	switch runtime.GOOS {
	case "linux":
		profile.Distro = osRelease("/etc/os-release")
	case "windows":
		profile.Shell = os.Getenv("ComSpec")
	}
	for _, tool := range HostTools() {
		_, err := exec.LookPath(tool)
		profile.Tools[tool] = err == nil
	}
	return profile, nil
}

// HostTools lists the external programs ps and sysmon run on this OS.
func HostTools() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"tasklist", "wmic"}
	case "darwin":
		return []string{"ps", "vm_stat"}
	default:
		return []string{"ps"}
	}
}

// MissingTools returns the host tools that were not found, sorted.
func (p *Profile) MissingTools() []string {
	missing := []string{}
	for tool, ok := range p.Tools {
		if !ok {
			missing = append(missing, tool)
		}
	}
	sort.Strings(missing)
	return missing
}

// Lines renders the profile as key: value lines. Unknown values are omitted.
func (p *Profile) Lines() []string {
	lines := []string{"os: " + p.OS + "/" + p.Arch}
	for _, field := range [][2]string{{"distro", p.Distro}, {"kernel", p.Kernel}, {"shell", p.Shell}} {
		if field[1] != "" {
			lines = append(lines, field[0]+": "+field[1])
		}
	}
	missing := "none"
	if tools := p.MissingTools(); len(tools) > 0 {
		missing = strings.Join(tools, ", ")
	}
	return append(lines, "missing tools: "+missing)
}

// osRelease returns "ID VERSION_ID" from an os-release file, or "".
func osRelease(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	fields := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if ok {
			fields[key] = strings.Trim(value, "\"'")
		}
	}
	return strings.TrimSpace(fields["ID"] + " " + fields["VERSION_ID"])
}
