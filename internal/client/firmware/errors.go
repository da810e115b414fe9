package firmware

import "errors"

var (
	ErrUnsupportedExtension = errors.New("file type not allowed")
	ErrNoFileSelected       = errors.New("no file selected")
	ErrVersionRequired      = errors.New("version required")
	ErrUploadInFlight       = errors.New("upload already in progress")
	ErrNoPendingDelete      = errors.New("no firmware pending deletion")
	ErrDeleteInFlight       = errors.New("deletion already in progress")
	ErrNotAFile             = errors.New("not a regular file")
)

// User-visible notice texts.
const (
	MsgUnsupportedExtension = "file type not allowed. Use: .bin, .hex, .fw, .img"
	MsgNoFileSelected       = "no file selected"
	MsgVersionRequired      = "version required"
	MsgUploadInFlight       = "upload already in progress"
	MsgUploadSucceeded      = "firmware uploaded successfully"
	MsgUploadFailed         = "firmware upload failed"
	MsgActivated            = "firmware activated"
	MsgActivateFailed       = "failed to activate firmware"
	MsgDeleted              = "firmware deleted"
	MsgDeleteFailed         = "failed to delete firmware"
)
