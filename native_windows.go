//go:build windows

package doccrop

func newPlatformNative(runner CommandRunner) NativeAutomation {
	return &wordAutomation{runner: runner, powershell: "powershell.exe"}
}
