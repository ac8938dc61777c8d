// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rudp

// aimd is additive-increase/multiplicative-decrease congestion control
// over a frame-count window, the same shape TCP NewReno uses over
// bytes.
type aimd struct {
	cwnd     float64
	ssthresh float64
}

const (
	mdFactor  = 0.5
	cwndFloor = 1.0
)

func newAIMD(initial float64) *aimd {
	if initial < cwndFloor {
		initial = cwndFloor
	}
	return &aimd{cwnd: initial, ssthresh: 1 << 30}
}

// onAck applies additive increase: +1 per RTT during congestion
// avoidance, or +1 per ACK during slow start (cwnd below ssthresh).
func (a *aimd) onAck() {
	if a.cwnd < a.ssthresh {
		a.cwnd++
	} else {
		a.cwnd += 1 / a.cwnd
	}
}

// onLoss applies multiplicative decrease, floored at 1.
func (a *aimd) onLoss() {
	a.ssthresh = a.cwnd * mdFactor
	a.cwnd *= mdFactor
	if a.cwnd < cwndFloor {
		a.cwnd = cwndFloor
	}
}

func (a *aimd) window() int {
	w := int(a.cwnd)
	if w < 1 {
		w = 1
	}
	return w
}
