package fleet

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHDialer opens sessions over SSH using key-file auth. Passphrase is
// consulted only when the key is encrypted.
type SSHDialer struct {
	KeyPath    string
	Passphrase string
	Timeout    time.Duration
}

func (d *SSHDialer) Dial(target Target) (Session, error) {
	keyPath := d.KeyPath
	if strings.HasPrefix(keyPath, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %v", err)
		}
		keyPath = filepath.Join(homeDir, keyPath[1:])
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key %s: %v", keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		if _, ok := err.(*ssh.PassphraseMissingError); !ok {
			return nil, fmt.Errorf("unable to parse private key: %v", err)
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(d.Passphrase))
		if err != nil {
			return nil, fmt.Errorf("unable to decrypt private key: %v", err)
		}
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	config := &ssh.ClientConfig{
		User: target.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", target.Host, target.Port), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", target.Key(), err)
	}

	return &sshSession{client: client}, nil
}

type sshSession struct {
	client *ssh.Client
}

// Run executes one command in a fresh SSH session on the shared connection,
// capturing stdout and stderr separately. Commands on the same connection
// run in submission order.
func (s *sshSession) Run(command string) ([]string, []string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %v", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	runErr := session.Run(command)
	return splitLines(stdout.String()), splitLines(stderr.String()), runErr
}

// Alive sends a keepalive request over the connection; any transport error
// means the session is gone and must be re-dialed.
func (s *sshSession) Alive() bool {
	_, _, err := s.client.SendRequest("keepalive@openssh.com", true, nil)
	return err == nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

func splitLines(out string) []string {
	trimmed := strings.TrimRight(out, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
