// Package serial provides the byte channel between the controller and the
// physical bridge adapter.
//
// It wraps go.bug.st/serial with the small contract the gpib package
// needs: timeout-bounded reads, read-until-terminator, and a single Close.
// A read timeout surfaces as a short or empty read, never as an error; the
// caller decides whether "no data" matters.
//
// The bridge enumerates as a USB virtual COM port, typically at 115200 baud
// 8N1. ListPorts helps locate it:
//
//	ports, err := serial.ListPorts()
//
// Opening the port:
//
//	ch, err := serial.Open(serial.Config{Port: "/dev/ttyUSB0"})
//	if err != nil {
//	    return err
//	}
//	defer ch.Close()
package serial
