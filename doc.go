// Package sftp implements the client-side core of SFTP version 3, layered
// atop an already-established duplex byte channel (typically an SSH
// "sftp" subsystem session). It handles packet framing, request/response
// multiplexing by request ID, the INIT/VERSION handshake, and a typed
// operation surface (open, read, write, stat, readdir, ...) on top of
// server-opaque file and directory handles.
//
// The package does not implement SSH itself; callers supply any
// io.ReadWriteCloser bound to the remote sftp subsystem (see cmd/sftpc for
// an example using golang.org/x/crypto/ssh).
package sftp
