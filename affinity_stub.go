// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package soque

import "errors"

// setAffinity is a stub for platforms without thread affinity support;
// workers run wherever the scheduler puts them.
func setAffinity(cpu int) error {
	return errors.New("soque: affinity not supported on this platform")
}
