package ata

import "errors"

var (
	// ErrNoSuchDevice is an error that occurs when a device slot is addressed
	// that detection did not populate.
	ErrNoSuchDevice = errors.New("no such device")

	// ErrOutOfRange is an error that occurs when a requested transfer extends
	// beyond a device's known sector count.
	ErrOutOfRange = errors.New("transfer exceeds device capacity")

	// ErrShortBuffer is an error that occurs when a caller-supplied buffer is
	// smaller than the requested transfer.
	ErrShortBuffer = errors.New("buffer smaller than transfer")

	// ErrCountTooLarge is an error that occurs when a requested sector count
	// does not fit a single command's count register encoding.
	ErrCountTooLarge = errors.New("sector count exceeds a single transfer")

	// ErrDriveFault is an error that occurs when a device asserts its drive
	// fault flag during a command sequence.
	ErrDriveFault = errors.New("drive fault")

	// errDeviceAbsent marks an empty drive slot during detection; it never
	// leaves the package, absence being a condition rather than a failure.
	errDeviceAbsent = errors.New("device absent")

	errInvalidDigestTarget = errors.New("invalid digest target")
)
