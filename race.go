// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package soque

// RaceEnabled is true when the race detector is active. Tests that rely on
// happens-before established through atomic cursor and marker orderings
// skip under it, because the detector cannot observe cross-variable
// acquire-release synchronization.
const RaceEnabled = true
