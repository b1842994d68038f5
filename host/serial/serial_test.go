package serial

import (
	"io"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSerial(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := DefaultConfig("/dev/ttyUSB1")

		Convey("It matches the firmware UART", func() {
			So(cfg.Device, ShouldEqual, "/dev/ttyUSB1")
			So(cfg.Baud, ShouldEqual, 38400)
			So(cfg.ReadTimeout, ShouldEqual, 100)
		})
	})

	Convey("Opening without a device fails", t, func() {
		_, err := Open(&Config{})
		So(err, ShouldEqual, ErrNoDevice)

		_, err = Open(nil)
		So(err, ShouldEqual, ErrNoDevice)
	})

	Convey("Given a pipe", t, func() {
		a, b := Pipe()
		Reset(func() {
			a.Close()
			b.Close()
		})

		Convey("Flush has nothing to do", func() {
			So(a.Flush(), ShouldBeNil)
		})

		Convey("Bytes written on one end arrive on the other", func() {
			go func() {
				a.Write([]byte{0x05, 0x10, 0x00, 0x00, 0x7e})
			}()
			buf := make([]byte, 5)
			n, err := io.ReadFull(b, buf)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 5)
			So(buf[4], ShouldEqual, 0x7e)
		})
	})
}
