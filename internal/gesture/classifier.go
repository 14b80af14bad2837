// Package gesture turns raw hand landmarks into debounced gestures, a smoothed
// cursor and one-shot action signals.
package gesture

import "github.com/ayusman/aircanvas/internal/detector"

// Gesture is a discrete hand pose.
type Gesture int

// Recognized gestures. Drawing is a single extended index finger.
const (
	None Gesture = iota
	Fist
	Drawing
	Two
	Three
	Four
	OpenPalm
	Pinch
)

var gestureNames = map[Gesture]string{
	None:     "none",
	Fist:     "fist",
	Drawing:  "drawing",
	Two:      "two",
	Three:    "three",
	Four:     "four",
	OpenPalm: "open_palm",
	Pinch:    "pinch",
}

func (g Gesture) String() string {
	if s, ok := gestureNames[g]; ok {
		return s
	}
	return "unknown"
}

// FingerCount returns the number of extended fingers g stands for, or -1 when
// g does not encode a count.
func (g Gesture) FingerCount() int {
	switch g {
	case Fist:
		return 0
	case Drawing:
		return 1
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case OpenPalm:
		return 5
	}
	return -1
}

var byCount = [...]Gesture{Fist, Drawing, Two, Three, Four, OpenPalm}

// fingerJoints pairs each non-thumb fingertip with its PIP joint.
var fingerJoints = [4][2]int{
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// Classify maps one hand to a raw gesture. A pinch wins over any finger count.
func Classify(hand *detector.HandLandmarks, pinchThreshold float64) Gesture {
	if hand.PinchDistance() < pinchThreshold {
		return Pinch
	}
	n := CountFingers(hand)
	if n < 0 || n >= len(byCount) {
		return None
	}
	return byCount[n]
}

// CountFingers counts extended fingers. The thumb is judged horizontally in
// normalized space relative to the wrist side; the other fingers are extended
// when their tip sits above the PIP joint in pixel space.
func CountFingers(hand *detector.HandLandmarks) int {
	count := 0

	wristX := hand.Points[detector.Wrist].X
	tipX := hand.Points[detector.ThumbTip].X
	ipX := hand.Points[detector.ThumbIP].X
	if wristX < ipX {
		if tipX > ipX {
			count++
		}
	} else if tipX < ipX {
		count++
	}

	for _, j := range fingerJoints {
		if hand.Pixels[j[0]].Y < hand.Pixels[j[1]].Y {
			count++
		}
	}
	return count
}
