package gearman

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/shuldan/queues/pkg/queue/broker"
)

const (
	reqMagic      = "\x00REQ"
	resMagic      = "\x00RES"
	headerSize    = 12
	maxPacketSize = 64 << 20
)

type packetType uint32

const (
	typeCanDo         packetType = 1
	typePreSleep      packetType = 4
	typeNoop          packetType = 6
	typeJobCreated    packetType = 8
	typeNoJob         packetType = 10
	typeWorkComplete  packetType = 13
	typeSubmitJobBg   packetType = 18
	typeError         packetType = 19
	typeGrabJobUniq   packetType = 30
	typeJobAssignUniq packetType = 31
)

// argCounts is the number of NUL separated arguments per packet type. The
// last argument takes the rest of the body and may contain NULs.
var argCounts = map[packetType]int{
	typeCanDo:         1,
	typePreSleep:      0,
	typeNoop:          0,
	typeJobCreated:    1,
	typeNoJob:         0,
	typeWorkComplete:  2,
	typeSubmitJobBg:   3,
	typeError:         2,
	typeGrabJobUniq:   0,
	typeJobAssignUniq: 4,
}

type packet struct {
	magic string
	typ   packetType
	args  [][]byte
}

func (p packet) arg(i int) []byte {
	if i < len(p.args) {
		return p.args[i]
	}
	return nil
}

func encodePacket(magic string, typ packetType, args ...[]byte) []byte {
	size := 0
	for i, a := range args {
		if i > 0 {
			size++
		}
		size += len(a)
	}

	buf := make([]byte, headerSize, headerSize+size)
	copy(buf, magic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(typ))
	binary.BigEndian.PutUint32(buf[8:12], uint32(size))
	for i, a := range args {
		if i > 0 {
			buf = append(buf, 0)
		}
		buf = append(buf, a...)
	}
	return buf
}

func readPacket(r io.Reader) (packet, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return packet{}, err
	}

	magic := string(hdr[:4])
	if magic != reqMagic && magic != resMagic {
		return packet{}, broker.ErrProtocol.WithDetail("reason", fmt.Sprintf("bad magic %q", magic))
	}
	p := packet{magic: magic, typ: packetType(binary.BigEndian.Uint32(hdr[4:8]))}

	size := binary.BigEndian.Uint32(hdr[8:12])
	if size > maxPacketSize {
		return packet{}, broker.ErrProtocol.WithDetail("reason", fmt.Sprintf("packet of %d bytes", size))
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return packet{}, err
	}

	n, known := argCounts[p.typ]
	if !known {
		n = 1
	}
	if n == 0 {
		return p, nil
	}
	p.args = bytes.SplitN(body, []byte{0}, n)
	if len(p.args) < n {
		return packet{}, broker.ErrProtocol.WithDetail("reason", fmt.Sprintf("packet type %d has %d of %d arguments", p.typ, len(p.args), n))
	}
	return p, nil
}
