package protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Record info layout, counted from the byte after the message tag
const (
	recInfoNameOffset     = 0
	recInfoNameSize       = 11
	recInfoUnitOffset     = 11
	recInfoIntervalOffset = 19
	recInfoDurationOffset = 21
	recInfoSamplesOffset  = 25
	recInfoMaxOffset      = 29
	recInfoAvgOffset      = 34
	recInfoMinOffset      = 39
	recInfoStartOffset    = 44
	recInfoSize           = recInfoStartOffset + DateTimeSize
)

// Record sample layout inside a record data batch
const (
	recItemSize     = 9 // f32 + flags + date/time
	recItemsOffset  = 2 // tag + count
	recItemDTOffset = 5
)

// RecordInfo describes a recording session stored on the meter
type RecordInfo struct {
	Name     string
	Unit     UnitExp
	Interval time.Duration
	Duration time.Duration
	Samples  uint32
	Max      Value
	Avg      Value
	Min      Value
	Start    time.Time
}

func (r *RecordInfo) String() string {
	return fmt.Sprintf("%q: %d samples every %s from %s (max %s, avg %s, min %s)",
		r.Name, r.Samples, r.Interval, r.Start.Format(time.DateTime), r.Max, r.Avg, r.Min)
}

// DecodeRecordInfo decodes the body of a record info message
func DecodeRecordInfo(data []byte) (*RecordInfo, error) {
	if err := need(data, recInfoSize, "record info"); err != nil {
		return nil, err
	}

	unit, err := DecodeUnit(readStringZ(data[recInfoUnitOffset:], recInfoIntervalOffset-recInfoUnitOffset))
	if err != nil {
		return nil, err
	}

	info := &RecordInfo{
		Name:     unitText(readStringZ(data[recInfoNameOffset:], recInfoNameSize)),
		Unit:     unit,
		Interval: time.Duration(binary.LittleEndian.Uint16(data[recInfoIntervalOffset:])) * time.Second,
		Duration: readSeconds(data[recInfoDurationOffset:]),
		Samples:  binary.LittleEndian.Uint32(data[recInfoSamplesOffset:]),
	}
	if info.Max, err = decodeSharedValue(data[recInfoMaxOffset:], unit); err != nil {
		return nil, err
	}
	if info.Avg, err = decodeSharedValue(data[recInfoAvgOffset:], unit); err != nil {
		return nil, err
	}
	if info.Min, err = decodeSharedValue(data[recInfoMinOffset:], unit); err != nil {
		return nil, err
	}
	if info.Start, err = DecodeDateTime(data[recInfoStartOffset:]); err != nil {
		return nil, err
	}
	return info, nil
}

// EncodeRecordInfo writes the body of a record info message
func EncodeRecordInfo(r *RecordInfo) []byte {
	buf := make([]byte, recInfoSize)
	copy(buf[recInfoNameOffset:recInfoNameOffset+recInfoNameSize-1], r.Name)
	unit, _ := EncodeUnit(r.Unit)
	copy(buf[recInfoUnitOffset:recInfoIntervalOffset], unit)
	binary.LittleEndian.PutUint16(buf[recInfoIntervalOffset:], uint16(r.Interval/time.Second))
	binary.LittleEndian.PutUint32(buf[recInfoDurationOffset:], uint32(r.Duration/time.Second))
	binary.LittleEndian.PutUint32(buf[recInfoSamplesOffset:], r.Samples)
	copy(buf[recInfoMaxOffset:], EncodeValue(r.Max)[:SharedValueSize])
	copy(buf[recInfoAvgOffset:], EncodeValue(r.Avg)[:SharedValueSize])
	copy(buf[recInfoMinOffset:], EncodeValue(r.Min)[:SharedValueSize])
	dt := PackDateTime(r.Start)
	copy(buf[recInfoStartOffset:], dt[:])
	return buf
}

// RecordItem is one recorded sample. Items decoded from a batch carry no
// unit; the unit comes from the session's RecordInfo.
type RecordItem struct {
	Value     Value
	Timestamp time.Time
}

func (r RecordItem) String() string {
	return r.Timestamp.Format(time.DateTime) + " " + r.Value.String()
}

// decodeRecordBatch decodes a record data message including its tag byte
func decodeRecordBatch(data []byte) ([]RecordItem, error) {
	if err := need(data, recItemsOffset, "record data"); err != nil {
		return nil, err
	}
	count := int(data[1])
	if err := need(data, recItemsOffset+count*recItemSize, "record data"); err != nil {
		return nil, err
	}

	items := make([]RecordItem, 0, count)
	for i := 0; i < count; i++ {
		item := data[recItemsOffset+i*recItemSize:]
		flags := item[4]

		ts, err := DecodeDateTime(item[recItemDTOffset:])
		if err != nil {
			return nil, err
		}
		items = append(items, RecordItem{
			Value: Value{
				Value:       readFloat32(item),
				Precision:   int(flags >> 4),
				OverloadNeg: flags&0x02 != 0,
				OverloadPos: flags&0x01 != 0,
			},
			Timestamp: ts,
		})
	}
	return items, nil
}

// EncodeRecordBatch writes a record data message including its tag byte.
// At most 255 items fit in one batch.
func EncodeRecordBatch(items []RecordItem) []byte {
	if len(items) > 0xFF {
		items = items[:0xFF]
	}
	buf := make([]byte, recItemsOffset, recItemsOffset+len(items)*recItemSize)
	buf[0] = MsgTypeRecordData
	buf[1] = byte(len(items))
	for _, it := range items {
		buf = append(buf, EncodeValue(it.Value)[:SharedValueSize]...)
		dt := PackDateTime(it.Timestamp)
		buf = append(buf, dt[:]...)
	}
	return buf
}
