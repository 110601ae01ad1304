package sshconsole

// Config defines SSH console settings.
type Config struct {
	Addr           string
	HostKeyPath    string
	KeyStorePath   string
	AuthorizedKeys string
}
