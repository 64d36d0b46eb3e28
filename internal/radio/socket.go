package radio

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// joinMulticast opens a UDP socket bound to groupAddr's port, joins the
// multicast group, and enables SO_REUSEADDR so multiple Driver
// instances on the same host (simulating distinct devices) can each
// bind the group port, grounded on netio.dialSenderSocket's
// Control-callback pattern for applying socket options post-bind.
func joinMulticast(groupAddr, ifName string) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp4", groupAddr)
	if err != nil {
		return nil, fmt.Errorf("radio: resolve group addr %s: %w", groupAddr, err)
	}

	var iface *net.Interface
	if ifName != "" {
		iface, err = net.InterfaceByName(ifName)
		if err != nil {
			return nil, fmt.Errorf("radio: interface %s: %w", ifName, err)
		}
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			ctlErr := c.Control(func(fd uintptr) {
				//nolint:gosec // G115: fd uintptr->int is safe; kernel FDs are always small positive integers.
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if ctlErr != nil {
				return ctlErr
			}
			return sockErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", addr.Port))
	if err != nil {
		return nil, fmt.Errorf("radio: listen %s: %w", groupAddr, err)
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		_ = pc.Close()
		return nil, fmt.Errorf("radio: unexpected PacketConn type %T", pc)
	}

	if err := conn.SetReadBuffer(maxFrameSize * 8); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("radio: set read buffer: %w", err)
	}

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(iface, addr); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("radio: join group %s: %w", groupAddr, err)
	}
	if err := pconn.SetMulticastLoopback(true); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("radio: set multicast loopback: %w", err)
	}

	return conn, nil
}
