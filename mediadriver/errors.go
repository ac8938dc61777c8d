// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mediadriver

import "errors"

var errUnsupported = errors.New("mediadriver: driver unavailable on this platform")
