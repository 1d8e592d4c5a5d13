package sftp

// ProtocolVersion is the SFTP version implemented by this client. See
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-02 and the OpenSSH
// extensions at
// https://github.com/openssh/openssh-portable/blob/master/PROTOCOL#L344.
const ProtocolVersion = 3

// Packet type bytes, per draft-ietf-secsh-filexfer-02 section 3.
const (
	fxpInit          = 1
	fxpVersion       = 2
	fxpOpen          = 3
	fxpClose         = 4
	fxpRead          = 5
	fxpWrite         = 6
	fxpLstat         = 7
	fxpFstat         = 8
	fxpSetstat       = 9
	fxpFsetstat      = 10
	fxpOpendir       = 11
	fxpReaddir       = 12
	fxpRemove        = 13
	fxpMkdir         = 14
	fxpRmdir         = 15
	fxpRealpath      = 16
	fxpStat          = 17
	fxpRename        = 18
	fxpReadlink      = 19
	fxpSymlink       = 20
	fxpStatus        = 101
	fxpHandle        = 102
	fxpData          = 103
	fxpName          = 104
	fxpAttrs         = 105
	fxpExtended      = 200
	fxpExtendedReply = 201
)

// fxp is a wire packet type, used only for logging/error text.
type fxp uint8

func (f fxp) String() string {
	switch f {
	case fxpInit:
		return "SSH_FXP_INIT"
	case fxpVersion:
		return "SSH_FXP_VERSION"
	case fxpOpen:
		return "SSH_FXP_OPEN"
	case fxpClose:
		return "SSH_FXP_CLOSE"
	case fxpRead:
		return "SSH_FXP_READ"
	case fxpWrite:
		return "SSH_FXP_WRITE"
	case fxpLstat:
		return "SSH_FXP_LSTAT"
	case fxpFstat:
		return "SSH_FXP_FSTAT"
	case fxpSetstat:
		return "SSH_FXP_SETSTAT"
	case fxpFsetstat:
		return "SSH_FXP_FSETSTAT"
	case fxpOpendir:
		return "SSH_FXP_OPENDIR"
	case fxpReaddir:
		return "SSH_FXP_READDIR"
	case fxpRemove:
		return "SSH_FXP_REMOVE"
	case fxpMkdir:
		return "SSH_FXP_MKDIR"
	case fxpRmdir:
		return "SSH_FXP_RMDIR"
	case fxpRealpath:
		return "SSH_FXP_REALPATH"
	case fxpStat:
		return "SSH_FXP_STAT"
	case fxpRename:
		return "SSH_FXP_RENAME"
	case fxpReadlink:
		return "SSH_FXP_READLINK"
	case fxpSymlink:
		return "SSH_FXP_SYMLINK"
	case fxpStatus:
		return "SSH_FXP_STATUS"
	case fxpHandle:
		return "SSH_FXP_HANDLE"
	case fxpData:
		return "SSH_FXP_DATA"
	case fxpName:
		return "SSH_FXP_NAME"
	case fxpAttrs:
		return "SSH_FXP_ATTRS"
	case fxpExtended:
		return "SSH_FXP_EXTENDED"
	case fxpExtendedReply:
		return "SSH_FXP_EXTENDED_REPLY"
	default:
		return "unknown"
	}
}

// Status codes, per draft-ietf-secsh-filexfer-02 section 7.
const (
	fxOK               = 0
	fxEOF              = 1
	fxNoSuchFile       = 2
	fxPermissionDenied = 3
	fxFailure          = 4
	fxBadMessage       = 5
	fxNoConnection     = 6 // client-generated only
	fxConnectionLost   = 7 // client-generated only
	fxOpUnsupported    = 8
)

// fx is a wire status code, used only for logging/error text.
type fx uint32

func (f fx) String() string {
	switch f {
	case fxOK:
		return "SSH_FX_OK"
	case fxEOF:
		return "SSH_FX_EOF"
	case fxNoSuchFile:
		return "SSH_FX_NO_SUCH_FILE"
	case fxPermissionDenied:
		return "SSH_FX_PERMISSION_DENIED"
	case fxFailure:
		return "SSH_FX_FAILURE"
	case fxBadMessage:
		return "SSH_FX_BAD_MESSAGE"
	case fxNoConnection:
		return "SSH_FX_NO_CONNECTION"
	case fxConnectionLost:
		return "SSH_FX_CONNECTION_LOST"
	case fxOpUnsupported:
		return "SSH_FX_OP_UNSUPPORTED"
	default:
		return "unknown"
	}
}
