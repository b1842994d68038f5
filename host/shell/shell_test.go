package shell

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"roverbot/core"
)

func TestParseDrive(t *testing.T) {
	Convey("Given drive arguments", t, func() {
		Convey("A direction alone uses the cruise speed", func() {
			d, s1, s2, err := ParseDrive([]string{"forward"})
			So(err, ShouldBeNil)
			So(d, ShouldEqual, core.Forward)
			So(s1, ShouldEqual, core.DefaultSpeed1)
			So(s2, ShouldEqual, core.DefaultSpeed2)
		})

		Convey("One speed drives both motors", func() {
			d, s1, s2, err := ParseDrive([]string{"L", "35"})
			So(err, ShouldBeNil)
			So(d, ShouldEqual, core.Left)
			So(s1, ShouldEqual, 35)
			So(s2, ShouldEqual, 35)
		})

		Convey("Two speeds are taken as given", func() {
			_, s1, s2, err := ParseDrive([]string{"back", "20", "80"})
			So(err, ShouldBeNil)
			So(s1, ShouldEqual, 20)
			So(s2, ShouldEqual, 80)
		})

		Convey("Bad input is refused", func() {
			_, _, _, err := ParseDrive(nil)
			So(err, ShouldNotBeNil)

			_, _, _, err = ParseDrive([]string{"up"})
			So(err, ShouldNotBeNil)

			_, _, _, err = ParseDrive([]string{"right", "101"})
			So(errors.Is(err, core.ErrDutyOutOfRange), ShouldBeTrue)
		})
	})
}

func TestFormatStatus(t *testing.T) {
	Convey("A moving robot shows its direction", t, func() {
		s := core.Status{Distance: 42, Direction: core.Right, Moving: true, Speed1: 60, Speed2: 60, Servo: -90}
		So(FormatStatus(s), ShouldEqual,
			"dist=42cm dir=right mode=manual speed=60/60 servo=-90 timeouts=0 desyncs=0")
	})

	Convey("A standing robot is stopped whatever its last direction", t, func() {
		s := core.Status{Direction: core.Left, Autonomous: true}
		So(FormatStatus(s), ShouldStartWith, "dist=0cm dir=stopped mode=auto ")
	})
}

func TestParseSwitch(t *testing.T) {
	Convey("auto accepts on and off spellings", t, func() {
		on, err := parseSwitch("ON")
		So(err, ShouldBeNil)
		So(on, ShouldBeTrue)
		on, err = parseSwitch("0")
		So(err, ShouldBeNil)
		So(on, ShouldBeFalse)
		_, err = parseSwitch("maybe")
		So(err, ShouldNotBeNil)
	})
}
