package oauth

import (
	"os/exec"
	"runtime"
)

// openBrowser best-effort launches the system browser at url. Failure is
// silent: the caller always also prints the URL for manual copy-paste.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
