//go:generate go run ./internal/tools/versiongen
//go:generate go run ./internal/tools/icongen -o tray/icon.png -force

package traycon
