package camera

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var deviceNumberRe = regexp.MustCompile(`video(\d+)$`)

// LinuxDiscovery はLinux環境でのカメラデバイス検出を実装する
type LinuxDiscovery struct {
	pattern string
}

// NewLinuxDiscovery は新しいLinuxDiscoveryを作成する
// pattern が空の場合は /dev/video* を使う
func NewLinuxDiscovery(pattern string) *LinuxDiscovery {
	if pattern == "" {
		pattern = "/dev/video*"
	}
	return &LinuxDiscovery{pattern: pattern}
}

// ScanDevices はシステム内の利用可能なカメラデバイスをスキャンする
func (d *LinuxDiscovery) ScanDevices(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(d.pattern)
	if err != nil {
		return nil, fmt.Errorf("デバイスのスキャンに失敗: %w", err)
	}

	// デバイス番号でソート
	sort.Slice(matches, func(i, j int) bool {
		return extractDeviceNumber(matches[i]) < extractDeviceNumber(matches[j])
	})

	var devices []string
	for _, match := range matches {
		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}

		if d.IsDeviceAvailable(ctx, match) && d.IsMainCamera(ctx, match) {
			devices = append(devices, match)
		}
	}

	return devices, nil
}

// IsDeviceAvailable は指定されたデバイスが利用可能かチェックする
func (d *LinuxDiscovery) IsDeviceAvailable(_ context.Context, device string) bool {
	if !isV4L2Device(device) {
		return false
	}

	info, err := os.Stat(device)
	if err != nil {
		return false
	}

	// キャラクタデバイス以外は対象外
	return info.Mode()&os.ModeCharDevice != 0
}

// GetDeviceInfo はデバイスの詳細情報を取得する
func (d *LinuxDiscovery) GetDeviceInfo(ctx context.Context, device string) (*DeviceInfo, error) {
	if !d.IsDeviceAvailable(ctx, device) {
		return nil, fmt.Errorf("デバイスが利用できません: %s", device)
	}

	fields := v4l2Info(ctx, device)
	return &DeviceInfo{
		Device: device,
		Name:   fields["Card type"],
		Driver: fields["Driver name"],
	}, nil
}

// IsMainCamera はデバイスがメインカメラ（カラー）かどうかを判定する
func (d *LinuxDiscovery) IsMainCamera(ctx context.Context, device string) bool {
	formats, ok := listFormats(ctx, device)
	if !ok || !hasColorFormat(formats) {
		return false
	}

	// 同じ物理デバイスの複数チャンネルの場合、最も小さい番号を選択
	deviceNum := extractDeviceNumber(device)
	dir := filepath.Dir(device)
	for i := 0; i < deviceNum; i++ {
		sibling := filepath.Join(dir, fmt.Sprintf("video%d", i))
		if !d.IsDeviceAvailable(ctx, sibling) {
			continue
		}
		siblingFormats, ok := listFormats(ctx, sibling)
		if ok && hasColorFormat(siblingFormats) && haveSameCameraName(ctx, device, sibling) {
			return false
		}
	}

	return true
}

// isV4L2Device はデバイスパスが videoN 形式かチェックする
func isV4L2Device(device string) bool {
	return deviceNumberRe.MatchString(filepath.Base(device))
}

// hasColorFormat はカラーフォーマットを含むかチェックする
// グレースケールのみのデバイス（IRカメラなど）は除外される
func hasColorFormat(formats string) bool {
	return strings.Contains(formats, "YUYV") || strings.Contains(formats, "MJPG")
}

// listFormats は v4l2-ctl でサポートフォーマットを取得する
func listFormats(ctx context.Context, device string) (string, bool) {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", device, "--list-formats-ext")
	output, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return string(output), true
}

// v4l2Info は v4l2-ctl --info の出力を key: value に分解する
func v4l2Info(ctx context.Context, device string) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields := make(map[string]string)
	output, err := exec.CommandContext(ctx, "v4l2-ctl", "--device", device, "--info").Output()
	if err != nil {
		return fields
	}
	return parseV4L2Info(string(output))
}

// parseV4L2Info は v4l2-ctl --info の出力を解析する
func parseV4L2Info(output string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		// 最初に現れた値を優先（Media Driver Info 側の重複キーを無視）
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}
	return fields
}

// haveSameCameraName は2つのデバイスが同じカメラかチェック
func haveSameCameraName(ctx context.Context, device1, device2 string) bool {
	name1 := v4l2Info(ctx, device1)["Card type"]
	name2 := v4l2Info(ctx, device2)["Card type"]
	return name1 != "" && name1 == name2
}

// extractDeviceNumber はデバイスパスから番号を抽出する
func extractDeviceNumber(device string) int {
	matches := deviceNumberRe.FindStringSubmatch(device)
	if len(matches) < 2 {
		return 0
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}
	return num
}

// MockDiscovery はテスト用のモックDiscovery実装
type MockDiscovery struct {
	devices     []string
	deviceInfos map[string]*DeviceInfo
	scanErr     error
}

// NewMockDiscovery は新しいMockDiscoveryを作成する
// names が与えられた場合、同じ順序でデバイス名として使う（空文字は名前なし）
func NewMockDiscovery(devices []string, names ...string) *MockDiscovery {
	m := &MockDiscovery{deviceInfos: make(map[string]*DeviceInfo)}
	for i, device := range devices {
		name := fmt.Sprintf("テストカメラ %d", i+1)
		if i < len(names) {
			name = names[i]
		}
		m.addDevice(device, name)
	}
	return m
}

// ScanDevices はモックデバイス一覧を返す
func (m *MockDiscovery) ScanDevices(_ context.Context) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	return append([]string(nil), m.devices...), nil
}

// IsDeviceAvailable はモックデバイスが利用可能かチェックする
func (m *MockDiscovery) IsDeviceAvailable(_ context.Context, device string) bool {
	_, exists := m.deviceInfos[device]
	return exists
}

// GetDeviceInfo はモックデバイス情報を取得する
func (m *MockDiscovery) GetDeviceInfo(_ context.Context, device string) (*DeviceInfo, error) {
	info, exists := m.deviceInfos[device]
	if !exists {
		return nil, fmt.Errorf("デバイスが見つかりません: %s", device)
	}

	result := *info
	return &result, nil
}

// AddDevice はテスト用にデバイスを追加する
func (m *MockDiscovery) AddDevice(device, name string) {
	if _, exists := m.deviceInfos[device]; exists {
		return
	}
	m.addDevice(device, name)
}

// RemoveDevice はテスト用にデバイスを削除する
func (m *MockDiscovery) RemoveDevice(device string) {
	for i, d := range m.devices {
		if d == device {
			m.devices = append(m.devices[:i], m.devices[i+1:]...)
			break
		}
	}
	delete(m.deviceInfos, device)
}

// SetScanError はテスト用にスキャン失敗を設定する
func (m *MockDiscovery) SetScanError(err error) {
	m.scanErr = err
}

func (m *MockDiscovery) addDevice(device, name string) {
	m.devices = append(m.devices, device)
	m.deviceInfos[device] = &DeviceInfo{
		Device: device,
		Name:   name,
		Driver: "mock",
	}
}
