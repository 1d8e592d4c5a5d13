// Command sftpc is a minimal interactive-free SFTP client built on the
// session core in github.com/tera-insights/sftp-client. It dials a host
// over SSH, requests the "sftp" subsystem, and drives the resulting byte
// stream with sftp.NewClient.
package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	sftp "github.com/tera-insights/sftp-client"
)

var (
	flagHost    string
	flagUser    string
	flagKeyFile string
	flagVerbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sftpc:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sftpc",
		Short: "Drive a remote SFTP server from the command line",
	}
	root.PersistentFlags().StringVar(&flagHost, "host", "", "host:port of the SSH server (required)")
	root.PersistentFlags().StringVar(&flagUser, "user", os.Getenv("USER"), "SSH username")
	root.PersistentFlags().StringVar(&flagKeyFile, "identity", "", "path to a private key file")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable trace-level client logging")
	root.MarkPersistentFlagRequired("host")

	root.AddCommand(newLsCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newPutCmd())
	root.AddCommand(newStatCmd())
	return root
}

func newLogger() sftp.Logger {
	log := logrus.New()
	if flagVerbose {
		log.SetLevel(logrus.TraceLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func dial() (*sftp.Client, *ssh.Client, error) {
	key, err := os.ReadFile(flagKeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("reading identity file: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing identity file: %w", err)
	}

	cfg := &ssh.ClientConfig{
		User:            flagUser,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint: gosec // TODO: wire up known_hosts verification
		Timeout:         10 * time.Second,
	}

	sshConn, err := ssh.Dial("tcp", flagHost, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing %s: %w", flagHost, err)
	}

	session, err := sshConn.NewSession()
	if err != nil {
		sshConn.Close()
		return nil, nil, fmt.Errorf("opening session: %w", err)
	}
	pw, err := session.StdinPipe()
	if err != nil {
		sshConn.Close()
		return nil, nil, err
	}
	pr, err := session.StdoutPipe()
	if err != nil {
		sshConn.Close()
		return nil, nil, err
	}
	if err := session.RequestSubsystem("sftp"); err != nil {
		sshConn.Close()
		return nil, nil, fmt.Errorf("requesting sftp subsystem: %w", err)
	}

	client, err := sftp.NewClient(sshPipe{pr, pw, session}, sftp.WithLogger(newLogger()))
	if err != nil {
		sshConn.Close()
		return nil, nil, fmt.Errorf("sftp handshake: %w", err)
	}
	return client, sshConn, nil
}

// sshPipe adapts an ssh.Session's split stdin/stdout pipes plus the
// session itself into the single io.ReadWriteCloser NewClient expects.
type sshPipe struct {
	r       io.Reader
	w       io.Writer
	session *ssh.Session
}

func (p sshPipe) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p sshPipe) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p sshPipe) Close() error                { return p.session.Close() }

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a remote directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			client, sshConn, err := dial()
			if err != nil {
				return err
			}
			defer sshConn.Close()
			defer client.Close()

			return client.WithDir(dir, func(d *sftp.Dir) error {
				entries, err := d.ReadAll()
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Println(e.LongName)
				}
				return nil
			})
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote> <local>",
		Short: "Download a remote file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sshConn, err := dial()
			if err != nil {
				return err
			}
			defer sshConn.Close()
			defer client.Close()

			local, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer local.Close()

			return client.WithFile(args[0], sftp.OpenRead, nil, func(f *sftp.File) error {
				buf := make([]byte, 32*1024)
				for {
					n, err := f.Read(buf)
					if n > 0 {
						if _, werr := local.Write(buf[:n]); werr != nil {
							return werr
						}
					}
					if err != nil {
						if err.Error() == "EOF" {
							return nil
						}
						return err
					}
				}
			})
		},
	}
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local> <remote>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sshConn, err := dial()
			if err != nil {
				return err
			}
			defer sshConn.Close()
			defer client.Close()

			local, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer local.Close()

			flags := sftp.OpenWrite | sftp.OpenCreate | sftp.OpenTrunc
			return client.WithFile(args[1], flags, nil, func(f *sftp.File) error {
				buf := make([]byte, 32*1024)
				for {
					n, rerr := local.Read(buf)
					if n > 0 {
						if _, werr := f.Write(buf[:n]); werr != nil {
							return werr
						}
					}
					if rerr != nil {
						if rerr.Error() == "EOF" {
							return nil
						}
						return rerr
					}
				}
			})
		},
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Print attributes for a remote path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sshConn, err := dial()
			if err != nil {
				return err
			}
			defer sshConn.Close()
			defer client.Close()

			attrs, err := client.Stat(path.Clean(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("size=%d perm=%o uid=%d gid=%d\n", attrs.Size, attrs.Permissions.Perm(), attrs.UID, attrs.GID)
			return nil
		},
	}
}
