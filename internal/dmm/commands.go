package dmm

import (
	"github.com/muurk/ut181a/internal/logging"
	"github.com/muurk/ut181a/internal/protocol"
	"go.uber.org/zap"
)

// maxPrealloc caps the sample slice preallocated from a record's info
const maxPrealloc = 1 << 16

// run sends cmd and waits for a plain success reply
func (c *Client) run(cmd protocol.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.exec(cmd, isSuccess)
	return err
}

// query sends cmd and returns the first message match accepts
func (c *Client) query(cmd protocol.Command, match func(protocol.Message) bool) (protocol.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.exec(cmd, match)
}

// counter sends cmd and decodes the 16-bit counter of its raw reply
func (c *Client) counter(cmd protocol.Command) (uint16, error) {
	msg, err := c.query(cmd, isReplyTo(cmd.Opcode()))
	if err != nil {
		return 0, err
	}
	n, err := msg.(*protocol.ReplyMessage).Uint16()
	if err != nil {
		return 0, NewDecodeError(cmd.Name, err)
	}
	return n, nil
}

// ToggleHold toggles the HOLD state of the display
func (c *Client) ToggleHold() error {
	return c.run(protocol.ToggleHoldCommand())
}

// SaveMeasurement stores the current reading in the meter's memory
func (c *Client) SaveMeasurement() error {
	return c.run(protocol.SaveMeasurementCommand())
}

// SavedMeasurementCount returns the number of stored measurements
func (c *Client) SavedMeasurementCount() (uint16, error) {
	return c.counter(protocol.SavedCountCommand())
}

// SavedMeasurement fetches one stored measurement (1-based index)
func (c *Client) SavedMeasurement(index int) (*protocol.SavedMeasurementMessage, error) {
	if err := ValidateSaveIndex(index); err != nil {
		return nil, err
	}
	msg, err := c.query(protocol.GetSavedCommand(uint16(index)), isSaved)
	if err != nil {
		return nil, err
	}
	return msg.(*protocol.SavedMeasurementMessage), nil
}

// DeleteSavedMeasurement deletes one stored measurement (1-based index)
func (c *Client) DeleteSavedMeasurement(index int) error {
	if err := ValidateSaveIndex(index); err != nil {
		return err
	}
	return c.run(protocol.DeleteSavedCommand(uint16(index)))
}

// DeleteAllSavedMeasurements clears the meter's measurement memory
func (c *Client) DeleteAllSavedMeasurements() error {
	return c.run(protocol.DeleteSavedCommand(protocol.DeleteAllIndex))
}

// SetMinMaxMode enables or disables min/max recording
func (c *Client) SetMinMaxMode(on bool) error {
	return c.run(protocol.SetMinMaxCommand(on))
}

// SetRange selects a fixed range or auto-ranging
func (c *Client) SetRange(r protocol.Range) error {
	if err := ValidateRange(r); err != nil {
		return err
	}
	return c.run(protocol.SetRangeCommand(r))
}

// SetReferenceValue sets the reference for relative measurements
func (c *Client) SetReferenceValue(v float32) error {
	return c.run(protocol.SetReferenceCommand(v))
}

// SetMode selects a measurement mode. The mode must be reachable from the
// current dial position or the meter rejects it.
func (c *Client) SetMode(m protocol.Mode) error {
	if err := ValidateMode(m); err != nil {
		return err
	}
	return c.run(protocol.SetModeCommand(m))
}

// RecordCount returns the number of stored recordings
func (c *Client) RecordCount() (uint16, error) {
	return c.counter(protocol.RecordCountCommand())
}

// RecordInfo fetches a recording's metadata (1-based index)
func (c *Client) RecordInfo(index int) (*protocol.RecordInfo, error) {
	if err := ValidateRecordIndex(index); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.recordInfo(uint16(index))
}

func (c *Client) recordInfo(index uint16) (*protocol.RecordInfo, error) {
	msg, err := c.exec(protocol.RecordInfoCommand(index), isRecordInfo)
	if err != nil {
		return nil, err
	}
	return msg.(*protocol.RecordInfoMessage).Info, nil
}

// RecordData fetches every sample of a recording (1-based index).
//
// The recording's info is fetched first for its unit. Samples are then
// requested in batches starting at offset 1 until the meter returns an
// empty batch.
func (c *Client) RecordData(index int) (*protocol.RecordInfo, []protocol.RecordItem, error) {
	if err := ValidateRecordIndex(index); err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := c.recordInfo(uint16(index))
	if err != nil {
		return nil, nil, err
	}

	items := make([]protocol.RecordItem, 0, min(info.Samples, maxPrealloc))
	offset := uint32(1)
	for {
		msg, err := c.exec(protocol.RecordDataCommand(uint16(index), offset), isRecordData)
		if err != nil {
			return nil, nil, err
		}
		batch := msg.(*protocol.RecordDataMessage).Items
		if len(batch) == 0 {
			return info, items, nil
		}

		for _, it := range batch {
			it.Value.Unit = info.Unit
			items = append(items, it)
		}
		offset += uint32(len(batch))

		logging.Debug("Record batch received",
			zap.Int("index", index),
			zap.Int("batch", len(batch)),
			zap.Int("total", len(items)),
		)
	}
}

// StartRecord starts a recording session named name, sampling every
// intervalSec seconds for durationMin minutes.
func (c *Client) StartRecord(name string, intervalSec, durationMin int) error {
	if errs := ValidateRecordParams(name, intervalSec, durationMin); len(errs) > 0 {
		return errs[0]
	}
	return c.run(protocol.StartRecordCommand(name, uint16(intervalSec), uint32(durationMin)))
}

// StopRecord stops the running recording session
func (c *Client) StopRecord() error {
	return c.run(protocol.StopRecordCommand())
}

// MonitorOn starts periodic measurement reports and waits for the first one
func (c *Client) MonitorOn() error {
	_, err := c.query(protocol.MonitorCommand(true), isMeasurement)
	return err
}

// MonitorOff stops periodic measurement reports. Either an acknowledgement
// or a measurement still in flight completes the exchange.
func (c *Client) MonitorOff() error {
	_, err := c.query(protocol.MonitorCommand(false), isSuccessOrMeasurement)
	return err
}

// Measurement waits for the next measurement report. Monitoring must be on.
func (c *Client) Measurement() (protocol.Measurement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, err := c.waitFor("get measurement", c.now().Add(c.waitTimeout), isMeasurement)
	if err != nil {
		return nil, err
	}
	return msg.(*protocol.MeasurementMessage).Measurement, nil
}
