package sftp

// OpenFlags are the bit flags for SSH_FXP_OPEN, per
// draft-ietf-secsh-filexfer-02 section 6.3.
type OpenFlags uint32

const (
	// OpenRead opens the file for reading. May be combined with OpenWrite.
	OpenRead OpenFlags = 1 << iota
	// OpenWrite opens the file for writing. May be combined with OpenRead.
	OpenWrite
	// OpenAppend forces all writes to append to the end of the file,
	// overriding OpenTrunc.
	OpenAppend
	// OpenCreate creates the file if it does not already exist.
	OpenCreate
	// OpenTrunc truncates an existing file to zero length. Requires
	// OpenCreate to also be set; the core does not enforce this, the
	// server does.
	OpenTrunc
	// OpenExcl causes the request to fail if the file already exists.
	// Requires OpenCreate to also be set; the core does not enforce this.
	OpenExcl
)

func (f OpenFlags) has(bits OpenFlags) bool { return f&bits == bits }
