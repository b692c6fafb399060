package dicomtag

import (
	"bytes"
	"encoding/csv"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	tagDictOnce sync.Once
	tagDict     map[Tag]TagInfo
)

// maybeInitTagDict 第一次查询时解析tagDictData
func maybeInitTagDict() {
	tagDictOnce.Do(func() {
		tagDict = make(map[Tag]TagInfo)
		reader := csv.NewReader(bytes.NewReader([]byte(tagDictData)))
		reader.Comma = '\t'  // tab separated file
		reader.Comment = '#' // comments start with #
		reader.FieldsPerRecord = 4
		for {
			row, err := reader.Read()
			if err == io.EOF {
				break
			} else if err != nil {
				logrus.Panicf("dicomtag: malformed dictionary: %v", err)
			}
			tag, err := parseTag(row[0])
			if err != nil {
				continue // we don't support groups yet
			}
			vr := ParseVR(row[1])
			if vr == VRUnknown {
				logrus.Panicf("dicomtag: bad VR %q for %s", row[1], row[2])
			}
			info := TagInfo{Tag: tag, VR: vr, Name: row[2], VM: row[3]}
			tagDict[tag] = info
		}
	})
}

// tagDictData 是 (tag, VR, name, VM) 的列表, 只覆盖体数据重建用到的模块
// 和常见的patient/study/series/image属性
const tagDictData = `# Tag	VR	Name	VM
(0002,0000)	UL	FileMetaInformationGroupLength	1
(0002,0001)	OB	FileMetaInformationVersion	1
(0002,0002)	UI	MediaStorageSOPClassUID	1
(0002,0003)	UI	MediaStorageSOPInstanceUID	1
(0002,0010)	UI	TransferSyntaxUID	1
(0002,0012)	UI	ImplementationClassUID	1
(0002,0013)	SH	ImplementationVersionName	1
(0002,0016)	AE	SourceApplicationEntityTitle	1
(0008,0005)	CS	SpecificCharacterSet	1-n
(0008,0008)	CS	ImageType	2-n
(0008,0012)	DA	InstanceCreationDate	1
(0008,0013)	TM	InstanceCreationTime	1
(0008,0014)	UI	InstanceCreatorUID	1
(0008,0016)	UI	SOPClassUID	1
(0008,0018)	UI	SOPInstanceUID	1
(0008,0020)	DA	StudyDate	1
(0008,0021)	DA	SeriesDate	1
(0008,0022)	DA	AcquisitionDate	1
(0008,0023)	DA	ContentDate	1
(0008,002A)	DT	AcquisitionDateTime	1
(0008,0030)	TM	StudyTime	1
(0008,0031)	TM	SeriesTime	1
(0008,0032)	TM	AcquisitionTime	1
(0008,0033)	TM	ContentTime	1
(0008,0050)	SH	AccessionNumber	1
(0008,0052)	CS	QueryRetrieveLevel	1
(0008,0054)	AE	RetrieveAETitle	1-n
(0008,0060)	CS	Modality	1
(0008,0061)	CS	ModalitiesInStudy	1-n
(0008,0064)	CS	ConversionType	1
(0008,0070)	LO	Manufacturer	1
(0008,0080)	LO	InstitutionName	1
(0008,0081)	ST	InstitutionAddress	1
(0008,0090)	PN	ReferringPhysicianName	1
(0008,0100)	SH	CodeValue	1
(0008,0102)	SH	CodingSchemeDesignator	1
(0008,0104)	LO	CodeMeaning	1
(0008,0201)	SH	TimezoneOffsetFromUTC	1
(0008,1010)	SH	StationName	1
(0008,1030)	LO	StudyDescription	1
(0008,1032)	SQ	ProcedureCodeSequence	1
(0008,103E)	LO	SeriesDescription	1
(0008,1040)	LO	InstitutionalDepartmentName	1
(0008,1050)	PN	PerformingPhysicianName	1-n
(0008,1060)	PN	NameOfPhysiciansReadingStudy	1-n
(0008,1070)	PN	OperatorsName	1-n
(0008,1080)	LO	AdmittingDiagnosesDescription	1-n
(0008,1090)	LO	ManufacturerModelName	1
(0008,1110)	SQ	ReferencedStudySequence	1
(0008,1140)	SQ	ReferencedImageSequence	1
(0008,1150)	UI	ReferencedSOPClassUID	1
(0008,1155)	UI	ReferencedSOPInstanceUID	1
(0008,2111)	ST	DerivationDescription	1
(0008,2112)	SQ	SourceImageSequence	1
(0008,2218)	SQ	AnatomicRegionSequence	1
(0010,0010)	PN	PatientName	1
(0010,0020)	LO	PatientID	1
(0010,0030)	DA	PatientBirthDate	1
(0010,0032)	TM	PatientBirthTime	1
(0010,0040)	CS	PatientSex	1
(0010,1000)	LO	OtherPatientIDs	1-n
(0010,1010)	AS	PatientAge	1
(0010,1020)	DS	PatientSize	1
(0010,1030)	DS	PatientWeight	1
(0010,1040)	LO	PatientAddress	1
(0010,2000)	LO	MedicalAlerts	1-n
(0010,2110)	LO	Allergies	1-n
(0010,2160)	SH	EthnicGroup	1
(0010,21A0)	CS	SmokingStatus	1
(0010,21C0)	US	PregnancyStatus	1
(0010,4000)	LT	PatientComments	1
(0012,0062)	CS	PatientIdentityRemoved	1
(0012,0063)	LO	DeidentificationMethod	1-n
(0018,0010)	LO	ContrastBolusAgent	1
(0018,0015)	CS	BodyPartExamined	1
(0018,0020)	CS	ScanningSequence	1-n
(0018,0021)	CS	SequenceVariant	1-n
(0018,0022)	CS	ScanOptions	1-n
(0018,0023)	CS	MRAcquisitionType	1
(0018,0024)	SH	SequenceName	1
(0018,0050)	DS	SliceThickness	1
(0018,0060)	DS	KVP	1
(0018,0080)	DS	RepetitionTime	1
(0018,0081)	DS	EchoTime	1
(0018,0083)	DS	NumberOfAverages	1
(0018,0085)	SH	ImagedNucleus	1
(0018,0087)	DS	MagneticFieldStrength	1
(0018,0088)	DS	SpacingBetweenSlices	1
(0018,0090)	DS	DataCollectionDiameter	1
(0018,0091)	IS	EchoTrainLength	1
(0018,0095)	DS	PixelBandwidth	1
(0018,1000)	LO	DeviceSerialNumber	1
(0018,1020)	LO	SoftwareVersions	1-n
(0018,1030)	LO	ProtocolName	1
(0018,1100)	DS	ReconstructionDiameter	1
(0018,1110)	DS	DistanceSourceToDetector	1
(0018,1111)	DS	DistanceSourceToPatient	1
(0018,1120)	DS	GantryDetectorTilt	1
(0018,1130)	DS	TableHeight	1
(0018,1140)	CS	RotationDirection	1
(0018,1150)	IS	ExposureTime	1
(0018,1151)	IS	XRayTubeCurrent	1
(0018,1152)	IS	Exposure	1
(0018,1160)	SH	FilterType	1-n
(0018,1164)	DS	ImagerPixelSpacing	2
(0018,1170)	IS	GeneratorPower	1
(0018,1190)	DS	FocalSpots	1-n
(0018,1210)	SH	ConvolutionKernel	1-n
(0018,1310)	US	AcquisitionMatrix	4
(0018,1312)	CS	InPlanePhaseEncodingDirection	1
(0018,1314)	DS	FlipAngle	1
(0018,1316)	DS	SAR	1
(0018,5100)	CS	PatientPosition	1
(0018,9311)	FD	SpiralPitchFactor	1
(0018,9345)	FD	CTDIvol	1
(0020,000D)	UI	StudyInstanceUID	1
(0020,000E)	UI	SeriesInstanceUID	1
(0020,0010)	SH	StudyID	1
(0020,0011)	IS	SeriesNumber	1
(0020,0012)	IS	AcquisitionNumber	1
(0020,0013)	IS	InstanceNumber	1
(0020,0020)	CS	PatientOrientation	2
(0020,0032)	DS	ImagePositionPatient	3
(0020,0037)	DS	ImageOrientationPatient	6
(0020,0052)	UI	FrameOfReferenceUID	1
(0020,0060)	CS	Laterality	1
(0020,0100)	IS	TemporalPositionIdentifier	1
(0020,0105)	IS	NumberOfTemporalPositions	1
(0020,1002)	IS	ImagesInAcquisition	1
(0020,1040)	LO	PositionReferenceIndicator	1
(0020,1041)	DS	SliceLocation	1
(0020,1208)	IS	NumberOfStudyRelatedInstances	1
(0020,1209)	IS	NumberOfSeriesRelatedInstances	1
(0020,4000)	LT	ImageComments	1
(0028,0002)	US	SamplesPerPixel	1
(0028,0004)	CS	PhotometricInterpretation	1
(0028,0006)	US	PlanarConfiguration	1
(0028,0008)	IS	NumberOfFrames	1
(0028,0009)	AT	FrameIncrementPointer	1-n
(0028,0010)	US	Rows	1
(0028,0011)	US	Columns	1
(0028,0030)	DS	PixelSpacing	2
(0028,0034)	IS	PixelAspectRatio	2
(0028,0100)	US	BitsAllocated	1
(0028,0101)	US	BitsStored	1
(0028,0102)	US	HighBit	1
(0028,0103)	US	PixelRepresentation	1
(0028,0106)	US	SmallestImagePixelValue	1
(0028,0107)	US	LargestImagePixelValue	1
(0028,0108)	US	SmallestPixelValueInSeries	1
(0028,0109)	US	LargestPixelValueInSeries	1
(0028,0120)	US	PixelPaddingValue	1
(0028,0121)	US	PixelPaddingRangeLimit	1
(0028,1050)	DS	WindowCenter	1-n
(0028,1051)	DS	WindowWidth	1-n
(0028,1052)	DS	RescaleIntercept	1
(0028,1053)	DS	RescaleSlope	1
(0028,1054)	LO	RescaleType	1
(0028,1055)	LO	WindowCenterWidthExplanation	1-n
(0028,2110)	CS	LossyImageCompression	1
(0032,1032)	PN	RequestingPhysician	1
(0032,1060)	LO	RequestedProcedureDescription	1
(0040,0009)	SH	ScheduledProcedureStepID	1
(0040,0244)	DA	PerformedProcedureStepStartDate	1
(0040,0245)	TM	PerformedProcedureStepStartTime	1
(0040,0253)	SH	PerformedProcedureStepID	1
(0040,0254)	LO	PerformedProcedureStepDescription	1
(0040,0275)	SQ	RequestAttributesSequence	1
(0040,1001)	SH	RequestedProcedureID	1
(6000,3000)	OW	OverlayData	1
(7FE0,0008)	OF	FloatPixelData	1
(7FE0,0009)	OD	DoubleFloatPixelData	1
(7FE0,0010)	OW	PixelData	1
(FFFE,E000)	UN	Item	1
(FFFE,E00D)	UN	ItemDelimitationItem	1
(FFFE,E0DD)	UN	SequenceDelimitationItem	1
`
