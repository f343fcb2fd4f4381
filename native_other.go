//go:build !windows

package doccrop

func newPlatformNative(CommandRunner) NativeAutomation {
	return unsupportedNative{reason: "Word automation requires Windows"}
}
