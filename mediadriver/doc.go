// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mediadriver is the optional zero-syscall-per-datagram I/O
// plane beneath [github.com/kaos-io/kaos/rudp]. All variants present the
// same Driver interface; the protocol logic above is unaware of which
// one is active.
//
// Default issues one syscall per datagram, portable to every platform.
// Batched uses sendmmsg/recvmmsg on Linux to amortize the syscall over
// up to 64 datagrams. IOUring submits sends and receives through a
// submission/completion queue pair for further amortization on Linux.
// AF_XDP kernel bypass is a documented stub: it requires a NIC driver
// with native XDP support and privileged socket setup this package does
// not attempt to replicate.
package mediadriver
